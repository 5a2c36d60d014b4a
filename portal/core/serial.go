package core

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSerial returns the highest TI- suffix in serials, 0 when none
func maxSerial(serials []string) int {
	highest := 0
	for _, s := range serials {
		m := serialPattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		highest = max(highest, n)
	}
	return highest
}

// serialOrder is the numeric part after the prefix of a serial such as
// TI-012 or AD-1000, 0 when there is none
func serialOrder(serial string) int {
	_, suffix, ok := strings.Cut(serial, "-")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(suffix))
	if err != nil {
		return 0
	}
	return n
}

func formatSerial(n int) string {
	return fmt.Sprintf("TI-%03d", n)
}

// NextSerial allocates the serial after the highest one in the whole log
func NextSerial(serials []string) string {
	return formatSerial(maxSerial(serials) + 1)
}

// RunningKm is the distance between two meter readings, 0 unless both
// are set and the OUT reading is ahead
func RunningKm(inMeter, outMeter float64) float64 {
	if inMeter > 0 && outMeter > 0 && outMeter > inMeter {
		return outMeter - inMeter
	}
	return 0
}
