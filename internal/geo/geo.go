// Package geo — географические вычисления: расстояние между точками
// и привязка GPS-координат к зонам Сингапура.
package geo

import "math"

// earthRadiusMeters — радиус Земли в метрах (сферическая модель).
const earthRadiusMeters = 6371000.0

// Distance возвращает расстояние в метрах между двумя GPS-точками
// по формуле гаверсинусов. Симметрична, ноль для совпадающих точек.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
