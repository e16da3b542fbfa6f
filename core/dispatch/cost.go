package dispatch

import (
	"sort"

	"github.com/kilianp07/powerplant/core/model"
)

// CO2TonsPerMWh is the CO2 emitted per MWh generated by thermal plants.
const CO2TonsPerMWh = 0.3

// costedPlant is the per-request working copy of a plant.
type costedPlant struct {
	plant model.Powerplant
	cost  float64 // euro/MWh
	pmax  float64 // effective capacity, wind-adjusted
}

func (c costedPlant) isWind() bool { return c.plant.Type.IsWind() }

// CostPerMWh returns the marginal cost of a plant under the given fuels.
func CostPerMWh(p model.Powerplant, fuels model.Fuels) (float64, error) {
	switch p.Type {
	case model.PlantGasFired:
		return fuels.Gas/p.Efficiency + CO2TonsPerMWh*fuels.CO2, nil
	case model.PlantTurboJet:
		return fuels.Kerosine/p.Efficiency + CO2TonsPerMWh*fuels.CO2, nil
	case model.PlantWindTurbine:
		return 0, nil
	default:
		return 0, &UnknownPlantTypeError{Plant: p.Name, Type: p.Type.String()}
	}
}

// effectivePMax returns the capacity usable under the given fuels.
func effectivePMax(p model.Powerplant, fuels model.Fuels) float64 {
	if p.Type.IsWind() {
		return round1(p.PMax * fuels.Wind / 100)
	}
	return p.PMax
}

// costPlants prices every plant and returns the working copies sorted by
// ascending cost. Plants of equal cost keep their input order.
func costPlants(plants []model.Powerplant, fuels model.Fuels) ([]costedPlant, error) {
	list := make([]costedPlant, 0, len(plants))
	for _, p := range plants {
		cost, err := CostPerMWh(p, fuels)
		if err != nil {
			return nil, err
		}
		list = append(list, costedPlant{plant: p, cost: cost, pmax: effectivePMax(p, fuels)})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].cost < list[j].cost })
	return list, nil
}
