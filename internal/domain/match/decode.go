package match

import (
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// ErrUnknownSport marks a record whose discriminator is missing or
// unrecognized. Store readers treat it as "entity absent", never as a
// failure of the surrounding query.
var ErrUnknownSport = errors.New("unknown sport discriminator")

type discriminatorProbe struct {
	SportID string `json:"sportId"`
	// Legacy records wrote the discriminator under sportType. This probe is
	// the only place the fallback lives.
	SportType string `json:"sportType"`
}

var decoders = map[Sport]func([]byte) (Match, error){
	SportCricket: func(data []byte) (Match, error) {
		var m CricketMatch
		if err := sonic.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "decode cricket match")
		}
		m.SportID = SportCricket
		return m, nil
	},
	SportFootball: func(data []byte) (Match, error) {
		var m FootballMatch
		if err := sonic.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "decode football match")
		}
		m.SportID = SportFootball
		return m, nil
	},
}

// Decode deserializes a stored document into the concrete match variant
// named by its sportId field, falling back to the legacy sportType field.
func Decode(data []byte) (Match, error) {
	var probe discriminatorProbe
	if err := sonic.Unmarshal(data, &probe); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "probe sport discriminator"), ErrUnknownSport)
	}

	tag := strings.TrimSpace(probe.SportID)
	if tag == "" {
		tag = strings.TrimSpace(probe.SportType)
	}
	if tag == "" {
		return nil, errors.Mark(errors.New("no sport discriminator"), ErrUnknownSport)
	}

	decode, ok := decoders[Sport(strings.ToUpper(tag))]
	if !ok {
		return nil, errors.Mark(errors.Newf("sport %q", tag), ErrUnknownSport)
	}

	return decode(data)
}
