package target

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// The built-in seed mirrors the demo database: customer 1 carries 50
// orders so one slow hit costs ~101 simulated queries, plus two small
// customers for contrast.
var seedCustomers = []struct {
	customerID int
	orders     int
}{
	{1, 50},
	{2, 10},
	{3, 3},
}

const seedItemsPerOrder = 3

var (
	seedProducts = []string{
		"Wireless Mouse", "Mechanical Keyboard", "USB-C Hub", "Laptop Stand",
		"Webcam", "Noise-Canceling Headphones", "Desk Lamp", "Monitor Arm",
		"External SSD", "Phone Charger", "HDMI Cable", "Ergonomic Chair Pad",
	}
	seedStreets = []string{"Oak St", "Maple Ave", "Pine Rd", "Cedar Ln", "Elm Dr"}
	seedCities  = []struct {
		city, state, zip string
	}{
		{"Springfield", "IL", "62701"},
		{"Portland", "OR", "97201"},
		{"Austin", "TX", "78701"},
		{"Denver", "CO", "80201"},
		{"Raleigh", "NC", "27601"},
	}
)

// DefaultCatalog builds the seed data. The generator runs off a fixed
// RNG seed so restarts serve identical payloads, which keeps demo runs
// comparable.
func DefaultCatalog() *Catalog {
	rng := rand.New(rand.NewSource(1))
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	var orders []Order
	orderID, itemID := 1, 1
	for _, cust := range seedCustomers {
		for n := 0; n < cust.orders; n++ {
			o := Order{
				OrderID:    orderID,
				CustomerID: cust.customerID,
				OrderDate:  base.AddDate(0, 0, rng.Intn(365)).Format("2006-01-02"),
			}
			for i := 0; i < seedItemsPerOrder; i++ {
				item := OrderItem{
					ItemID:      itemID,
					OrderID:     orderID,
					ProductName: pick(rng, seedProducts),
					Quantity:    1 + rng.Intn(4),
					Price:       float64(5+rng.Intn(195)) + 0.99,
				}
				o.TotalAmount += float64(item.Quantity) * item.Price
				o.Items = append(o.Items, item)
				itemID++
			}
			loc := seedCities[rng.Intn(len(seedCities))]
			o.Shipping = &ShippingInfo{
				ShippingID:     orderID,
				OrderID:        orderID,
				Address:        fmt.Sprintf("%d %s", 100+rng.Intn(900), pick(rng, seedStreets)),
				City:           loc.city,
				State:          loc.state,
				ZipCode:        loc.zip,
				TrackingNumber: trackingNumber(rng),
			}
			orders = append(orders, o)
			orderID++
		}
	}
	return NewCatalog(orders)
}

func pick(rng *rand.Rand, choices []string) string {
	return choices[rng.Intn(len(choices))]
}

// trackingNumber derives a carrier-looking code from a UUID drawn off
// the seeded RNG, so the catalog stays deterministic.
func trackingNumber(rng *rand.Rand) string {
	var b [16]byte
	rng.Read(b[:])
	u, _ := uuid.FromBytes(b[:])
	return "TRK-" + u.String()[:18]
}
