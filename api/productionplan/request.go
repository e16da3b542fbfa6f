package productionplan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/powerplant/core/dispatch"
	"github.com/kilianp07/powerplant/core/model"
)

// ErrMissingField is returned when a required request field is absent.
var ErrMissingField = errors.New("missing required field")

// Request is the body of POST /productionplan.
type Request struct {
	Load        *float64     `json:"load"`
	Fuels       *Fuels       `json:"fuels"`
	Powerplants []Powerplant `json:"powerplants"`
}

// Fuels carries market prices using the public wire keys. Every key is
// required.
type Fuels struct {
	Gas      *float64 `json:"gas(euro/MWh)"`
	Kerosine *float64 `json:"kerosine(euro/MWh)"`
	CO2      *float64 `json:"co2(euro/ton)"`
	Wind     *float64 `json:"wind(%)"`
}

// Powerplant is the wire representation of a plant. Efficiency and pmin may
// be omitted for wind turbines only.
type Powerplant struct {
	Name       *string  `json:"name"`
	Type       *string  `json:"type"`
	Efficiency *float64 `json:"efficiency"`
	PMin       *float64 `json:"pmin"`
	PMax       *float64 `json:"pmax"`
}

// Validate checks that every required field is present and names all the
// missing ones.
func (r Request) Validate() error {
	var missing []string
	if r.Load == nil {
		missing = append(missing, "load")
	}
	if r.Fuels == nil {
		missing = append(missing, "fuels")
	} else {
		missing = append(missing, r.Fuels.missing()...)
	}
	if r.Powerplants == nil {
		missing = append(missing, "powerplants")
	}
	for i, p := range r.Powerplants {
		missing = append(missing, p.missing(i)...)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

func (f Fuels) missing() []string {
	var out []string
	for _, k := range []struct {
		key string
		v   *float64
	}{
		{"fuels.gas(euro/MWh)", f.Gas},
		{"fuels.kerosine(euro/MWh)", f.Kerosine},
		{"fuels.co2(euro/ton)", f.CO2},
		{"fuels.wind(%)", f.Wind},
	} {
		if k.v == nil {
			out = append(out, k.key)
		}
	}
	return out
}

func (p Powerplant) missing(i int) []string {
	var out []string
	field := func(name string) {
		out = append(out, fmt.Sprintf("powerplants[%d].%s", i, name))
	}
	if p.Name == nil {
		field("name")
	}
	if p.Type == nil {
		field("type")
	}
	if p.PMax == nil {
		field("pmax")
	}
	if p.Type != nil {
		if t, err := model.ParsePlantType(*p.Type); err == nil && !t.IsWind() {
			if p.Efficiency == nil {
				field("efficiency")
			}
			if p.PMin == nil {
				field("pmin")
			}
		}
	}
	return out
}

// ToModel converts the request into dispatcher input. Unknown plant types are
// reported with the raw type string.
func (r Request) ToModel() (float64, model.Fuels, []model.Powerplant, error) {
	if err := r.Validate(); err != nil {
		return 0, model.Fuels{}, nil, err
	}
	fuels := model.Fuels{Gas: *r.Fuels.Gas, Kerosine: *r.Fuels.Kerosine, CO2: *r.Fuels.CO2, Wind: *r.Fuels.Wind}
	plants := make([]model.Powerplant, len(r.Powerplants))
	for i, p := range r.Powerplants {
		t, err := model.ParsePlantType(*p.Type)
		if err != nil {
			return 0, model.Fuels{}, nil, &dispatch.UnknownPlantTypeError{Plant: *p.Name, Type: *p.Type}
		}
		plants[i] = model.Powerplant{
			Name:       *p.Name,
			Type:       t,
			Efficiency: valueOr(p.Efficiency, 0),
			PMin:       valueOr(p.PMin, 0),
			PMax:       *p.PMax,
		}
	}
	return *r.Load, fuels, plants, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Power is a MW value always encoded with one decimal.
type Power float64

func (p Power) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 1, 64)), nil
}

// Allocation is one entry of the response body.
type Allocation struct {
	Name string `json:"name"`
	P    Power  `json:"p"`
}

// FromPlan converts a plan into the response body.
func FromPlan(plan dispatch.Plan) []Allocation {
	out := make([]Allocation, len(plan.Allocations))
	for i, a := range plan.Allocations {
		out[i] = Allocation{Name: a.Name, P: Power(a.P)}
	}
	return out
}

// ErrorResponse is the body returned with non-2xx statuses.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Shortfall *Power       `json:"shortfall,omitempty"`
	Plan      []Allocation `json:"plan,omitempty"`
}
