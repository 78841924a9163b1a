package models

import "time"

// Source tags which operational system produced a row. It is part of the
// natural-key uniqueness constraint on every warehouse table.
type Source string

const (
    SourceSQL       Source = "SQL"
    SourceSecondary Source = "Secondary"
)

// Customer is the canonical shape of a customer dimension row before it
// receives a surrogate key. CustomerID is source-namespaced: raw SQL ids
// pass through, secondary ids carry the "ACC-" prefix.
type Customer struct {
    CustomerID   string
    CompanyName  string
    ContactName  string
    ContactTitle string
    Address      string
    City         string
    Region       string
    PostalCode   string
    Country      string
    Phone        string
    Source       Source
}

// Employee is the canonical employee dimension row. Secondary-source ids
// are shifted into the 1000+ band so both sources can coexist.
type Employee struct {
    EmployeeID      int
    LastName        string
    FirstName       string
    Title           string
    TitleOfCourtesy string
    BirthDate       *time.Time
    HireDate        *time.Time
    Address         string
    City            string
    Region          string
    PostalCode      string
    Country         string
    HomePhone       string
    ReportsTo       *int
    Source          Source
}

// Order is the canonical fact row prior to dimension-key resolution.
// CustomerID may be empty and EmployeeID zero when the source reference
// was absent; the fact loader records those as NULL keys.
type Order struct {
    OrderID        int
    CustomerID     string
    EmployeeID     int
    OrderDate      *time.Time
    RequiredDate   *time.Time
    ShippedDate    *time.Time
    ShipVia        int
    Freight        float64
    ShipName       string
    ShipAddress    string
    ShipCity       string
    ShipRegion     string
    ShipPostalCode string
    ShipCountry    string
    TotalAmount    float64
    IsDelivered    bool
    DeliveryDelay  *int // days between shipped and required date
    Source         Source
}
