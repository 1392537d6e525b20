package registry

import (
	"encoding/json"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/hbomb79/Sectrans/pkg/logger"
)

// CarTask pairs a local car directory with the registry ID it uploads to.
type CarTask struct {
	LocalName string
	RemoteID  json.Number
}

// Match pairs each local car directory name with the registry car of the
// exact same name (case-sensitive). Tasks are returned in the order of
// localNames.
//
// When the registry lists more than one car with the same name, the first
// is used and an *AmbiguousNameError is returned alongside the tasks. Local
// names with no counterpart are dropped and logged along with the closest
// registry name, if any.
func Match(localNames []string, cars []Car, log logger.Logger) ([]CarTask, error) {
	byName := make(map[string]json.Number, len(cars))
	duplicates := make(map[string][]string)
	for _, car := range cars {
		if first, ok := byName[car.Name]; ok {
			if _, seen := duplicates[car.Name]; !seen {
				duplicates[car.Name] = []string{first.String()}
			}
			duplicates[car.Name] = append(duplicates[car.Name], car.ID.String())
			continue
		}

		byName[car.Name] = car.ID
	}

	tasks := make([]CarTask, 0, len(localNames))
	for _, name := range localNames {
		id, ok := byName[name]
		if !ok {
			if suggestion := closestName(name, cars); suggestion != "" {
				log.Emit(logger.WARNING, "Local car %q has no registry entry (closest registry name: %q)\n", name, suggestion)
			} else {
				log.Emit(logger.WARNING, "Local car %q has no registry entry\n", name)
			}
			continue
		}

		tasks = append(tasks, CarTask{LocalName: name, RemoteID: id})
	}

	if len(duplicates) > 0 {
		err := &AmbiguousNameError{Duplicates: duplicates}
		log.Emit(logger.ERROR, "%v\n", err)
		return tasks, err
	}

	return tasks, nil
}

// closestName returns the registry name most similar to the name provided,
// or an empty string if nothing is remotely similar.
func closestName(name string, cars []Car) string {
	metric := &metrics.Hamming{CaseSensitive: false}

	best, bestScore := "", 0.0
	for _, car := range cars {
		if score := strutil.Similarity(name, car.Name, metric); score > bestScore {
			best, bestScore = car.Name, score
		}
	}

	return best
}
