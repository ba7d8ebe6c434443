// zones.go — справочник зон Сингапура.
// Зоны сгруппированы по регионам для клавиатур подписки,
// координаты — центры зон для привязки GPS-репортов.
package geo

import (
	"sort"
	"strings"
)

// Region — регион Сингапура с набором зон.
type Region struct {
	Name  string
	Zones []string
}

// Regions — регионы в порядке отображения в клавиатурах.
// Ключи стабильные, используются в callback data.
var Regions = map[string]Region{
	"central": {
		Name:  "Central",
		Zones: []string{"Tanjong Pagar", "Chinatown", "Bugis", "Orchard", "Tiong Bahru", "Newton"},
	},
	"east": {
		Name:  "East",
		Zones: []string{"Katong", "Bedok", "Tampines", "Pasir Ris", "Geylang"},
	},
	"west": {
		Name:  "West",
		Zones: []string{"Jurong East", "Clementi", "Bukit Batok", "Boon Lay"},
	},
	"north": {
		Name:  "North",
		Zones: []string{"Woodlands", "Yishun", "Ang Mo Kio", "Sembawang"},
	},
	"northeast": {
		Name:  "North-East",
		Zones: []string{"Serangoon", "Hougang", "Punggol", "Sengkang"},
	},
}

// RegionKeys — ключи регионов в стабильном порядке.
func RegionKeys() []string {
	keys := make([]string, 0, len(Regions))
	for k := range Regions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// zoneCoords — репрезентативная точка каждой зоны (центр района).
var zoneCoords = map[string][2]float64{
	"Tanjong Pagar": {1.2765, 103.8456},
	"Chinatown":     {1.2838, 103.8443},
	"Bugis":         {1.3009, 103.8559},
	"Orchard":       {1.3048, 103.8318},
	"Tiong Bahru":   {1.2859, 103.8270},
	"Newton":        {1.3138, 103.8387},
	"Katong":        {1.3050, 103.9056},
	"Bedok":         {1.3240, 103.9302},
	"Tampines":      {1.3496, 103.9568},
	"Pasir Ris":     {1.3721, 103.9474},
	"Geylang":       {1.3201, 103.8918},
	"Jurong East":   {1.3329, 103.7436},
	"Clementi":      {1.3162, 103.7649},
	"Bukit Batok":   {1.3590, 103.7637},
	"Boon Lay":      {1.3386, 103.7058},
	"Woodlands":     {1.4382, 103.7890},
	"Yishun":        {1.4304, 103.8354},
	"Ang Mo Kio":    {1.3691, 103.8454},
	"Sembawang":     {1.4491, 103.8185},
	"Serangoon":     {1.3554, 103.8679},
	"Hougang":       {1.3612, 103.8863},
	"Punggol":       {1.3984, 103.9072},
	"Sengkang":      {1.3868, 103.8914},
}

// ValidZone проверяет, что зона есть в справочнике.
// Возвращает каноническое имя (регистронезависимый поиск).
func ValidZone(name string) (string, bool) {
	if _, ok := zoneCoords[name]; ok {
		return name, true
	}
	for z := range zoneCoords {
		if strings.EqualFold(z, name) {
			return z, true
		}
	}
	return "", false
}

// RegionOfZone возвращает ключ региона, которому принадлежит зона.
func RegionOfZone(zone string) (string, bool) {
	for key, region := range Regions {
		for _, z := range region.Zones {
			if z == zone {
				return key, true
			}
		}
	}
	return "", false
}

// NearestZone находит ближайшую к точке зону и расстояние до её центра.
func NearestZone(lat, lng float64) (string, float64) {
	nearest := ""
	minDist := -1.0
	for zone, c := range zoneCoords {
		d := Distance(lat, lng, c[0], c[1])
		if minDist < 0 || d < minDist {
			minDist = d
			nearest = zone
		}
	}
	return nearest, minDist
}
