// suppliersim is a local stand-in for the Kestrel Air distribution API.
// Point SUPPLIER_KESTREL_BASE_URL at it to run searches without live
// supplier credentials.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	CabinClass    string `json:"cabin_class"`
}

type simPoint struct {
	Code string `json:"code"`
	City string `json:"city"`
}

type simSegment struct {
	Carrier         string   `json:"carrier"`
	CarrierName     string   `json:"carrier_name"`
	FlightNumber    string   `json:"flight_number"`
	From            simPoint `json:"from"`
	To              simPoint `json:"to"`
	DepartAt        string   `json:"depart_at"`
	ArriveAt        string   `json:"arrive_at"`
	DurationMinutes int      `json:"duration_minutes"`
	Baggage         string   `json:"baggage"`
}

type simJourney struct {
	From            simPoint     `json:"from"`
	To              simPoint     `json:"to"`
	DepartAt        string       `json:"depart_at"`
	ArriveAt        string       `json:"arrive_at"`
	DurationMinutes int          `json:"duration_minutes"`
	Stops           int          `json:"stops"`
	Cabin           string       `json:"cabin"`
	Segments        []simSegment `json:"segments"`
}

type simOffer struct {
	OfferRef string `json:"offer_ref"`
	Carrier  struct {
		IATA string `json:"iata"`
		Name string `json:"name"`
	} `json:"carrier"`
	Fare struct {
		Base     float64 `json:"base"`
		Taxes    float64 `json:"taxes"`
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
	} `json:"fare"`
	Refundable bool         `json:"refundable"`
	SeatsLeft  int          `json:"seats_left"`
	ValidUntil string       `json:"valid_until"`
	Journeys   []simJourney `json:"journeys"`
}

type route struct {
	origin      string
	originCity  string
	dest        string
	destCity    string
	carrier     string
	carrierName string
	baseFare    float64
}

var routes = []route{
	{"CGK", "Jakarta", "DPS", "Denpasar", "KA", "Kestrel Air", 540},
	{"CGK", "Jakarta", "SIN", "Singapore", "KA", "Kestrel Air", 890},
	{"DPS", "Denpasar", "CGK", "Jakarta", "KA", "Kestrel Air", 560},
	{"SIN", "Singapore", "CGK", "Jakarta", "KX", "Kestrel Express", 910},
	{"CGK", "Jakarta", "KUL", "Kuala Lumpur", "KX", "Kestrel Express", 720},
}

func buildOffer(r route, departureDate, cabin string, hour int) simOffer {
	if departureDate == "" {
		departureDate = time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	}
	if cabin == "" {
		cabin = "economy"
	}
	dep := fmt.Sprintf("%sT%02d:00:00Z", departureDate, hour)
	arr := fmt.Sprintf("%sT%02d:10:00Z", departureDate, hour+2)
	flightNumber := fmt.Sprintf("%s%d%02d", r.carrier, 100+hour, hour)

	var o simOffer
	o.OfferRef = fmt.Sprintf("%s-%s-%s-%02d", r.carrier, r.origin, r.dest, hour)
	o.Carrier.IATA = r.carrier
	o.Carrier.Name = r.carrierName
	o.Fare.Base = r.baseFare + float64(hour)*7
	o.Fare.Taxes = o.Fare.Base * 0.11
	o.Fare.Total = o.Fare.Base + o.Fare.Taxes
	o.Fare.Currency = "USD"
	o.Refundable = hour%2 == 0
	o.SeatsLeft = 3 + hour
	o.ValidUntil = time.Now().Add(30 * time.Minute).UTC().Format(time.RFC3339)
	o.Journeys = []simJourney{{
		From:            simPoint{Code: r.origin, City: r.originCity},
		To:              simPoint{Code: r.dest, City: r.destCity},
		DepartAt:        dep,
		ArriveAt:        arr,
		DurationMinutes: 130,
		Stops:           0,
		Cabin:           cabin,
		Segments: []simSegment{{
			Carrier:         r.carrier,
			CarrierName:     r.carrierName,
			FlightNumber:    flightNumber,
			From:            simPoint{Code: r.origin, City: r.originCity},
			To:              simPoint{Code: r.dest, City: r.destCity},
			DepartAt:        dep,
			ArriveAt:        arr,
			DurationMinutes: 130,
			Baggage:         "20kg",
		}},
	}}
	return o
}

func offersFor(req searchRequest) []simOffer {
	offers := make([]simOffer, 0)
	for _, r := range routes {
		if req.Origin != "" && !strings.EqualFold(r.origin, req.Origin) {
			continue
		}
		if req.Destination != "" && !strings.EqualFold(r.dest, req.Destination) {
			continue
		}
		for _, hour := range []int{6, 11, 17} {
			offers = append(offers, buildOffer(r, req.DepartureDate, req.CabinClass, hour))
		}
	}
	return offers
}

func main() {
	r := gin.Default()

	r.POST("/kestrel/v1/offers/search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"offers": offersFor(req),
		})
	})

	r.GET("/kestrel/v1/offers/:ref", func(c *gin.Context) {
		ref := c.Param("ref")
		for _, o := range offersFor(searchRequest{}) {
			if o.OfferRef == ref {
				c.JSON(http.StatusOK, o)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "offer not found"})
	})

	port := os.Getenv("SUPPLIERSIM_PORT")
	if port == "" {
		port = "9090"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start supplier simulator: %v", err)
	}
}
