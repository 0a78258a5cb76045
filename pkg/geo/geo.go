// Package geo 地理距离计算
package geo

import "math"

// EarthRadius 地球平均半径（米）
const EarthRadius = 6371e3

// Distance 使用 haversine 公式计算两点间的大圆距离（米）。
// 入参为角度制；纬度应在 [-90, 90]、经度应在 [-180, 180]，本函数不做校验，
// 越界输入会得到数学上有定义但无实际意义的结果，校验由调用方负责。
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)

	a := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// ValidLatitude 纬度是否在 [-90, 90]
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude 经度是否在 [-180, 180]
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
