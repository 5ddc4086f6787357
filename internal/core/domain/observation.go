package domain

import "encoding/json"

// ObservationRecord is one raw geolocated observation (a visitor IP).
type ObservationRecord struct {
	ID              string  `json:"id"`
	IPAddress       string  `json:"ipAddress"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	CountryOrRegion string  `json:"countryOrRegion"`
}

// observationWire is the nested shape observation exports arrive in.
type observationWire struct {
	ID        string `json:"id"`
	IPAddress string `json:"ipAddress"`
	Location  struct {
		GeoCoordinates struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"geoCoordinates"`
	} `json:"location"`
	City            string `json:"city"`
	State           string `json:"state"`
	CountryOrRegion string `json:"countryOrRegion"`
}

// UnmarshalJSON decodes the nested export shape. Missing coordinates decode as zero,
// which the aggregator treats as "no location".
func (o *ObservationRecord) UnmarshalJSON(data []byte) error {
	var w observationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = ObservationRecord{
		ID:              w.ID,
		IPAddress:       w.IPAddress,
		City:            w.City,
		State:           w.State,
		CountryOrRegion: w.CountryOrRegion,
	}
	if lat := w.Location.GeoCoordinates.Latitude; lat != nil {
		o.Latitude = *lat
	}
	if lng := w.Location.GeoCoordinates.Longitude; lng != nil {
		o.Longitude = *lng
	}
	return nil
}

// MarshalJSON writes the same nested shape UnmarshalJSON reads.
func (o ObservationRecord) MarshalJSON() ([]byte, error) {
	var w observationWire
	w.ID = o.ID
	w.IPAddress = o.IPAddress
	w.City = o.City
	w.State = o.State
	w.CountryOrRegion = o.CountryOrRegion
	lat, lng := o.Latitude, o.Longitude
	w.Location.GeoCoordinates.Latitude = &lat
	w.Location.GeoCoordinates.Longitude = &lng
	return json.Marshal(w)
}

// Location returns the record's coordinate.
func (o ObservationRecord) Location() GeoPoint {
	return GeoPoint{Lat: o.Latitude, Lng: o.Longitude}
}
