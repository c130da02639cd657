package conf

import (
	"time"

	"github.com/zeptools/gw-docgen/throttle"
)

// ThrottleGroupPost limits document-creating requests per client IP
const ThrottleGroupPost = "post"

type ThrottleConf struct {
	Burst     int    `json:"burst"`
	Increment int    `json:"increment"`
	Period    string `json:"period"` // e.g. "6s"
}

func (t *ThrottleConf) setDefaults() {
	if t.Burst == 0 {
		t.Burst = 10
	}
	if t.Increment == 0 {
		t.Increment = 1
	}
	if t.Period == "" {
		t.Period = "6s"
	}
}

func (t ThrottleConf) BucketConf() (throttle.BucketConf, error) {
	period, err := time.ParseDuration(t.Period)
	if err != nil {
		return throttle.BucketConf{}, err
	}
	bc := throttle.BucketConf{Burst: t.Burst, Increment: t.Increment, Period: period}
	return bc, bc.Validate()
}
