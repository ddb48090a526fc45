package entry

// Config mirrors what viper unmarshals from the CLI layer's config
// file/env/flags.
type Config struct {
	Root    string `mapstructure:"root" json:"root" yaml:"root"`
	Out     string `mapstructure:"out" json:"out" yaml:"out"`
	Entries []Spec `mapstructure:"entries" json:"entries" yaml:"entries"`
}

// Spec is a discriminated union describing one configured entry provider;
// the CLI layer maps these into real entry.Provider values.
type Spec struct {
	Type string `mapstructure:"type" json:"type" yaml:"type"`

	// rootsTs fields
	File     string `mapstructure:"file" json:"file" yaml:"file"`
	NameFrom string `mapstructure:"nameFrom" json:"nameFrom" yaml:"nameFrom"`

	// explicit fields
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	Path string `mapstructure:"path" json:"path" yaml:"path"`

	// glob fields
	Pattern string `mapstructure:"pattern" json:"pattern" yaml:"pattern"`
}
