package tasks

import "github.com/desertthunder/spotsync/internal/models"

// Missing returns every remote track whose ID is not present locally, in remote order.
// A repeated remote ID is returned each time it appears; the fetcher removes such repeats.
//
// It is pure: neither input is modified and equal inputs always give equal output.
// When local and remote hold the same IDs in the same order the comparison short-circuits.
func Missing(local, remote []models.Track) []models.Track {
	if sameOrder(local, remote) {
		return []models.Track{}
	}

	have := make(map[string]struct{}, len(local))
	for _, t := range local {
		have[t.ID] = struct{}{}
	}

	missing := []models.Track{}
	for _, t := range remote {
		if _, ok := have[t.ID]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

func sameOrder(local, remote []models.Track) bool {
	if len(local) != len(remote) {
		return false
	}
	for i := range local {
		if local[i].ID != remote[i].ID {
			return false
		}
	}
	return true
}
