package farms

import (
	"strings"
)

// Farm is a record of the farms collection. Records are never edited after
// they are created.
type Farm struct {
	ID           int64  `json:"farmId"`
	DisplayName  string `json:"farmDisplayName"`
	Name         string `json:"farmName"`
	Phone        string `json:"farmPhone"`
	OpeningHours string `json:"openingHours"`
	WebURL       string `json:"webUrl"`
	ImageURL     string `json:"imageUrl"`
}

// Draft is the AddFarm form as the user typed it.
type Draft struct {
	DisplayName string
	Name        string
	Phone       string
	URL         string
	OpenHour    string
	CloseHour   string
}

// BuildFarm turns a draft into the record stored under id. imageURL is the
// uploaded image's download URL, or "" when there is none.
func BuildFarm(id int64, d Draft, imageURL string) Farm {
	return Farm{
		ID:           id,
		DisplayName:  strings.TrimSpace(d.DisplayName),
		Name:         strings.TrimSpace(d.Name),
		Phone:        strings.TrimSpace(d.Phone),
		OpeningHours: strings.TrimSpace(d.OpenHour) + " " + strings.TrimSpace(d.CloseHour),
		WebURL:       strings.TrimSpace(d.URL),
		ImageURL:     imageURL,
	}
}
