package plan

import (
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/zeebo/blake3"
)

// Fingerprint hashes the schedule-defining content of a plan: wave layout and
// each unit's prerequisites. Status, version and timestamps are excluded, so
// two builds from identical input share a fingerprint.
func Fingerprint(p *ExecutionPlan) string {
	h := blake3.New()

	writeField := func(s string) {
		_, _ = h.Write([]byte(strconv.Itoa(len(s))))
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(s))
	}

	writeField(strconv.Itoa(len(p.Waves)))
	for _, w := range p.Waves {
		writeField("wave")
		writeField(strconv.Itoa(w.Index))
		writeField(strconv.Itoa(w.Layer))
		for _, id := range w.Units {
			writeField(id)
			deps := append([]string(nil), p.Units[id].DependsOn...)
			sort.Strings(deps)
			writeField(strconv.Itoa(len(deps)))
			for _, d := range deps {
				writeField(d)
			}
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
