package extremum

// Sensor is a catalogue entry. ZeroBased sensors (counts, rates, light) rest at
// 0 and start the day at a real 0 rather than unset.
type Sensor struct {
	ID        string
	ZeroBased bool
}

const (
	AirTemperature    = "air_temperature"
	Dewpoint          = "dewpoint"
	RelativeHumidity  = "relative_humidity"
	SealevelPressure  = "sealevel_pressure"
	Illuminance       = "illuminance"
	RainDurationToday = "rain_duration_today"
	RainRate          = "rain_rate"
	SolarRadiation    = "solar_radiation"
	StrikeCountToday  = "lightning_strike_count_today"
	StrikeEnergy      = "lightning_strike_energy"
	UV                = "uv"
	WindGust          = "wind_gust"
	WindLull          = "wind_lull"
	WindSpeedAvg      = "wind_speed_avg"
)

// Catalogue is the fixed set of sensors tracked by the station.
var Catalogue = []Sensor{
	{ID: Dewpoint},
	{ID: RelativeHumidity},
	{ID: Illuminance, ZeroBased: true},
	{ID: SealevelPressure},
	{ID: RainDurationToday, ZeroBased: true},
	{ID: RainRate, ZeroBased: true},
	{ID: SolarRadiation, ZeroBased: true},
	{ID: StrikeCountToday, ZeroBased: true},
	{ID: StrikeEnergy, ZeroBased: true},
	{ID: AirTemperature},
	{ID: UV, ZeroBased: true},
	{ID: WindGust, ZeroBased: true},
	{ID: WindLull, ZeroBased: true},
	{ID: WindSpeedAvg, ZeroBased: true},
}
