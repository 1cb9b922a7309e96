package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

var cities = []City{
	{Name: "Istanbul", Latitude: 41.0082, Longitude: 28.9784},
	{Name: "Ankara", Latitude: 39.9334, Longitude: 32.8597},
	{Name: "Izmir", Latitude: 38.4237, Longitude: 27.1428},
	{Name: "Bursa", Latitude: 40.1885, Longitude: 29.0610},
	{Name: "Antalya", Latitude: 36.8969, Longitude: 30.7133},
	{Name: "Adana", Latitude: 37.0000, Longitude: 35.3213},
	{Name: "Konya", Latitude: 37.8746, Longitude: 32.4932},
	{Name: "Gaziantep", Latitude: 37.0662, Longitude: 37.3833},
	{Name: "Mersin", Latitude: 36.8121, Longitude: 34.6415},
	{Name: "Kayseri", Latitude: 38.7312, Longitude: 35.4787},
}

// Cities lists the supported cities in picker order.
func Cities() []City {
	result := make([]City, len(cities))
	copy(result, cities)
	return result
}

func LookupCity(name string) (City, bool) {
	for _, city := range cities {
		if city.Name == name {
			return city, true
		}
	}
	return City{}, false
}

type Condition struct {
	Icon        string
	Description string
}

var conditions = map[int]Condition{
	0:  {"☀️", "Güneşli"},
	1:  {"🌤️", "Az Bulutlu"},
	2:  {"⛅", "Parçalı Bulutlu"},
	3:  {"☁️", "Bulutlu"},
	45: {"🌫️", "Sisli"},
	48: {"🌫️", "Kırağılı Sis"},
	51: {"🌧️", "Hafif Yağmur"},
	53: {"🌧️", "Yağmurlu"},
	55: {"🌧️", "Şiddetli Yağmur"},
	61: {"🌧️", "Hafif Yağmur"},
	63: {"🌧️", "Yağmurlu"},
	65: {"🌧️", "Şiddetli Yağmur"},
	71: {"🌨️", "Hafif Kar"},
	73: {"🌨️", "Karlı"},
	75: {"🌨️", "Yoğun Kar"},
	80: {"🌦️", "Sağanak"},
	81: {"🌦️", "Sağanak"},
	82: {"⛈️", "Şiddetli Sağanak"},
	95: {"⛈️", "Gök Gürültülü"},
	96: {"⛈️", "Dolu"},
	99: {"⛈️", "Şiddetli Dolu"},
}

const placeholderIcon = "🌡️"

func ConditionFor(code int) Condition {
	if condition, ok := conditions[code]; ok {
		return condition
	}
	return Condition{Icon: placeholderIcon, Description: "Bilinmiyor"}
}

// Report is the current weather for one city. A report that is not
// Available is the placeholder shown after a failed fetch.
type Report struct {
	Available   bool
	Temperature int
	Icon        string
	Description string
	City        string
}

func (report Report) TemperatureLabel() string {
	if !report.Available {
		return "--"
	}
	return strconv.Itoa(report.Temperature)
}

func PlaceholderReport(city string) Report {
	return Report{Icon: placeholderIcon, Description: "Yüklenemedi", City: city}
}

type WeatherService struct {
	baseURL string
	client  *http.Client
}

func NewWeatherService(baseURL string) *WeatherService {
	return &WeatherService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ResolveCity maps unsupported names to the default city.
func ResolveCity(name string) City {
	if city, ok := LookupCity(name); ok {
		return city
	}
	city, _ := LookupCity(models.DefaultCity)
	return city
}

type forecastResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
}

func (service *WeatherService) FetchCurrent(ctx context.Context, cityName string) (Report, error) {
	city := ResolveCity(cityName)

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(city.Latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(city.Longitude, 'f', 4, 64))
	query.Set("current", "temperature_2m,weather_code")
	query.Set("timezone", "auto")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, service.baseURL+"/v1/forecast?"+query.Encode(), nil)
	if err != nil {
		return PlaceholderReport(city.Name), fmt.Errorf("building weather request: %w", err)
	}

	response, err := service.client.Do(request)
	if err != nil {
		return PlaceholderReport(city.Name), fmt.Errorf("fetching weather: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, response.Body)
		return PlaceholderReport(city.Name), fmt.Errorf("fetching weather: unexpected status %d", response.StatusCode)
	}

	var forecast forecastResponse
	if err := json.NewDecoder(response.Body).Decode(&forecast); err != nil {
		return PlaceholderReport(city.Name), fmt.Errorf("decoding weather: %w", err)
	}
	if forecast.Current.Temperature == nil || forecast.Current.WeatherCode == nil {
		return PlaceholderReport(city.Name), fmt.Errorf("decoding weather: missing current conditions")
	}

	condition := ConditionFor(*forecast.Current.WeatherCode)
	return Report{
		Available:   true,
		Temperature: int(math.Floor(*forecast.Current.Temperature + 0.5)),
		Icon:        condition.Icon,
		Description: condition.Description,
		City:        city.Name,
	}, nil
}
