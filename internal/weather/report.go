package weather

import (
	"context"
	"time"
)

// Report is the walking-oriented weather summary for a location.
type Report struct {
	Location      Location        `json:"location"`
	Current       Current         `json:"current"`
	Environmental Environmental   `json:"environmental"`
	Timestamp     time.Time       `json:"timestamp"`
	Forecast      []ForecastEntry `json:"forecast"`
}

// Location echoes the requested coordinates.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Current describes present conditions.
type Current struct {
	Temperature     float64 `json:"temperature"`
	TemperatureUnit string  `json:"temperatureUnit"`
	Humidity        float64 `json:"humidity"`
	Pressure        float64 `json:"pressure"`
	PressureUnit    string  `json:"pressureUnit"`
	Wind            Wind    `json:"wind"`
	UVIndex         int     `json:"uvIndex"`
	HeatIndex       float64 `json:"heatIndex"`
	Conditions      string  `json:"conditions"`
	Comfort         Comfort `json:"comfort"`
}

// Wind is speed and direction with its unit.
type Wind struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
	Unit      string  `json:"unit"`
}

// Comfort is the walking comfort assessment.
type Comfort struct {
	Score           float64  `json:"score"`
	Level           string   `json:"level"`
	Recommendations []string `json:"recommendations"`
}

// AirQualityImpact describes how weather affects pollutant levels.
type AirQualityImpact struct {
	Dispersion string `json:"dispersion"`
	Inversions string `json:"inversions"`
}

// Environmental links weather to air quality and thermal comfort.
type Environmental struct {
	AirQualityImpact    AirQualityImpact `json:"airQualityImpact"`
	PollutionDispersion string           `json:"pollutionDispersion"`
	ThermalComfort      string           `json:"thermalComfort"`
}

// ForecastEntry is one hour of the short-range forecast.
type ForecastEntry struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Conditions  string    `json:"conditions"`
	Comfort     float64   `json:"comfort"`
}

// Report assembles current conditions, comfort and forecast for a location.
func (s *Service) Report(ctx context.Context, lat, lon float64) (*Report, error) {
	obs, err := s.GetCurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	forecast, err := s.GetForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	return BuildReport(lat, lon, obs, forecast), nil
}

// BuildReport derives a Report from an observation and forecast.
func BuildReport(lat, lon float64, obs *Observation, forecast *Forecast) *Report {
	score := ComfortScore(obs.Temperature, obs.Humidity, obs.WindSpeed, obs.UVIndex)
	dispersion := Dispersion(obs.WindSpeed)

	report := &Report{
		Location: Location{Latitude: lat, Longitude: lon},
		Current: Current{
			Temperature:     obs.Temperature,
			TemperatureUnit: "C",
			Humidity:        obs.Humidity,
			Pressure:        obs.Pressure,
			PressureUnit:    "hPa",
			Wind: Wind{
				Speed:     obs.WindSpeed,
				Direction: obs.WindDirection,
				Unit:      "km/h",
			},
			UVIndex:    obs.UVIndex,
			HeatIndex:  HeatIndex(obs.Temperature, obs.Humidity),
			Conditions: Condition(obs.Temperature, obs.Humidity, obs.WindSpeed),
			Comfort: Comfort{
				Score:           score,
				Level:           ComfortLevel(score),
				Recommendations: Recommendations(obs),
			},
		},
		Environmental: Environmental{
			AirQualityImpact: AirQualityImpact{
				Dispersion: dispersion,
				Inversions: Inversions(obs.Temperature, obs.Humidity),
			},
			PollutionDispersion: dispersion,
			ThermalComfort:      ThermalComfort(score),
		},
		Timestamp: obs.ObservedAt,
		Forecast:  []ForecastEntry{},
	}

	if forecast != nil {
		for _, h := range forecast.Hourly {
			report.Forecast = append(report.Forecast, ForecastEntry{
				Time:        h.Time,
				Temperature: h.Temperature,
				Humidity:    h.Humidity,
				Conditions:  Condition(h.Temperature, h.Humidity, h.WindSpeed),
				Comfort:     ComfortScore(h.Temperature, h.Humidity, h.WindSpeed, h.UVIndex),
			})
		}
	}

	return report
}
