package services_test

import (
	"math"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/asucbc/cbc-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

var eventLocation = geo.Point{Lat: 33.4242, Lon: -111.9281}

// northOf returns the point the given number of feet due north of p
func northOf(p geo.Point, feet float64) geo.Point {
	meters := feet / geo.FeetPerMeter
	return geo.Point{Lat: p.Lat + meters/geo.EarthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func redeemRequestAt(p geo.Point) *models.RedeemRequest {
	return &models.RedeemRequest{
		FirstName:          "Sparky",
		LastName:           "Devil",
		ASUEmail:           "sparky@asu.edu",
		HasReceivedCredits: boolPtr(true),
		OrgID:              "org-123",
		Latitude:           floatPtr(p.Lat),
		Longitude:          floatPtr(p.Lon),
	}
}
