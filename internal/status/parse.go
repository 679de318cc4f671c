package status

import (
	"bufio"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	listRe     = regexp.MustCompile(`There are (\d+)/(\d+) players online`)
	slotsRe    = regexp.MustCompile(`\d+/(\d+)`)
	tickRateRe = regexp.MustCompile(`\d+\.\d+`)
	sizeSuffix = []string{"Bytes", "KB", "MB", "GB"}
)

// ParsePlayers extracts online and maximum players from a list response of
// the form "There are X/Y players online".
func ParsePlayers(resp string) (online, slots int, ok bool) {
	m := listRe.FindStringSubmatch(resp)
	if m == nil {
		return 0, 0, false
	}
	online, err1 := strconv.Atoi(m[1])
	slots, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return online, slots, true
}

// ParseSlots returns the denominator of the first "X/Y" in resp.
func ParseSlots(resp string) (int, bool) {
	m := slotsRe.FindStringSubmatch(resp)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseTPS returns the first decimal number in resp. Integers are skipped so
// that "last 1m" in Paper's output is not taken for a tick rate.
func ParseTPS(resp string) (float64, bool) {
	tok := tickRateRe.FindString(resp)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseMaxPlayersProperty reads key=value lines and returns the value of
// max-players. Comment lines start with # or !.
func ParseMaxPlayersProperty(r io.Reader) (int, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) != "max-players" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// FormatBytes renders n with a binary unit, rounded to two decimals with
// trailing zeros dropped: 2048 is "2 KB", 1536 is "1.5 KB". Zero is "0 Bytes".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := 0
	for i < len(sizeSuffix)-1 && n >= int64(1)<<(10*(i+1)) {
		i++
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeSuffix[i]
}
