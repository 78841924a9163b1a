package models

type Config struct {
    Source    SourceDB  `yaml:"source"`
    Secondary Secondary `yaml:"secondary"`
    Warehouse SourceDB  `yaml:"warehouse"`
    DateDim   DateDim   `yaml:"date_dimension"`
    Export    Export    `yaml:"export"`
}

// SourceDB describes a SQL Server connection, used for both the
// operational source and the warehouse.
type SourceDB struct {
    Server            string `yaml:"server"`
    Port              int    `yaml:"port"`
    Database          string `yaml:"database"`
    Username          string `yaml:"username"`
    Password          string `yaml:"password"`
    TrustedConnection bool   `yaml:"trusted_connection"`
    Timeout           string `yaml:"timeout"` // e.g. "30s"
}

// Secondary points at the directory of workbook exports from the
// desktop database. An empty Dir disables the secondary source.
type Secondary struct {
    Dir string `yaml:"dir"`
}

type DateDim struct {
    StartYear int `yaml:"start_year"`
    EndYear   int `yaml:"end_year"`
}

type Export struct {
    Path string `yaml:"path"` // flat-file export of the transformed fact table
}

// ApplyDefaults fills unset fields with the values the legacy pipeline used.
func (c *Config) ApplyDefaults() {
    if c.DateDim.StartYear == 0 {
        c.DateDim.StartYear = 1990
    }
    if c.DateDim.EndYear == 0 {
        c.DateDim.EndYear = 2025
    }
    if c.Export.Path == "" {
        c.Export.Path = "data/fact_orders_transformed.csv"
    }
    if c.Source.Timeout == "" {
        c.Source.Timeout = "30s"
    }
    if c.Warehouse.Timeout == "" {
        c.Warehouse.Timeout = "30s"
    }
}
