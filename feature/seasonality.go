package feature

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Seasonality is a single sine or cosine Fourier component of a seasonal period
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(name string) (string, bool) {
	return label(s.Decode(), name)
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

// UnmarshalJSON decodes the label map produced by Decode where the order is a string
func (s *Seasonality) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name        string      `json:"name"`
		FourierComp FourierComp `json:"fourier_component"`
		Order       string      `json:"order"`
	}
	err := json.Unmarshal(data, &labelStr)
	if err != nil {
		return err
	}
	s.Name = labelStr.Name
	s.FourierComp = labelStr.FourierComp
	s.Order, err = strconv.Atoi(labelStr.Order)
	if err != nil {
		return err
	}
	return nil
}

// Generate computes the Fourier component for each epoch value in seconds given the period of
// the seasonality in seconds
func (s Seasonality) Generate(epoch []float64, periodSec float64) []float64 {
	omega := 2.0 * math.Pi * float64(s.Order) / periodSec
	res := make([]float64, len(epoch))
	for i, tFeat := range epoch {
		rad := omega * tFeat
		if s.FourierComp == FourierCompCos {
			res[i] = math.Cos(rad)
			continue
		}
		res[i] = math.Sin(rad)
	}
	return res
}
