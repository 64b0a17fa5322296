package layers

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

// TimestampField selects which of a FileRecord's three timestamps a Date
// layer groups by.
type TimestampField int

const (
	MTime TimestampField = iota
	CTime
	ATime
)

func (f TimestampField) extract(r scan.FileRecord) scan.Timestamp {
	switch f {
	case CTime:
		return r.ChangeTime
	case ATime:
		return r.AccessTime
	default:
		return r.ModificationTime
	}
}

// DateLayer is the C5 "Date" variant: a three-level year/month/day bucket
// on a chosen timestamp.
type DateLayer struct {
	name  string
	field TimestampField

	mu    sync.RWMutex
	index map[string]map[string]map[string][]scan.FileRecord // year -> month -> day -> records
}

// NewDateLayer constructs a named Date layer grouping on field.
func NewDateLayer(name string, field TimestampField) *DateLayer {
	return &DateLayer{name: name, field: field}
}

func (l *DateLayer) Name() string { return l.name }

func (l *DateLayer) BuildIndex(files []scan.FileRecord) {
	index := make(map[string]map[string]map[string][]scan.FileRecord)
	for _, f := range files {
		if f.Mode.IsDir {
			continue
		}
		ts := l.field.extract(f)
		t := time.Unix(ts.Seconds, ts.Nanoseconds).UTC()
		year := fmt.Sprintf("%04d", t.Year())
		month := fmt.Sprintf("%02d", int(t.Month()))
		day := fmt.Sprintf("%02d", t.Day())

		if index[year] == nil {
			index[year] = make(map[string]map[string][]scan.FileRecord)
		}
		if index[year][month] == nil {
			index[year][month] = make(map[string][]scan.FileRecord)
		}
		index[year][month][day] = append(index[year][month][day], f)
	}
	for _, months := range index {
		for _, days := range months {
			for day := range days {
				sort.Slice(days[day], func(i, j int) bool {
					return days[day][i].Name < days[day][j].Name
				})
			}
		}
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()
}

func (l *DateLayer) Resolve(subPath string) (string, bool) {
	parts := splitPath(subPath)
	if len(parts) != 4 {
		return "", false
	}
	year, month, day, name := parts[0], parts[1], parts[2], parts[3]

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.index[year][month][day] {
		if f.Name == name {
			return f.AbsolutePath, true
		}
	}
	return "", false
}

func (l *DateLayer) List(subPath string) []string {
	parts := splitPath(subPath)
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch len(parts) {
	case 0:
		years := make([]string, 0, len(l.index))
		for y := range l.index {
			years = append(years, y)
		}
		sort.Strings(years)
		return years
	case 1:
		months := make([]string, 0, len(l.index[parts[0]]))
		for m := range l.index[parts[0]] {
			months = append(months, m)
		}
		sort.Strings(months)
		return months
	case 2:
		days := make([]string, 0, len(l.index[parts[0]][parts[1]]))
		for d := range l.index[parts[0]][parts[1]] {
			days = append(days, d)
		}
		sort.Strings(days)
		return days
	case 3:
		records := l.index[parts[0]][parts[1]][parts[2]]
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = r.Name
		}
		return names
	default:
		return nil
	}
}
