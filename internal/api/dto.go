package api

import "github.com/starford/folio/internal/cloudinary"

// searchResult is a single search hit in the API response.
type searchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// uploadEcho is returned by POST /api/test-upload.
type uploadEcho struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// envCheck reports which image host credentials are set.
type envCheck struct {
	Configured bool   `json:"cloudinary_configured"`
	CloudName  string `json:"cloudinary_cloud_name"`
	APIKey     string `json:"cloudinary_api_key"`
	APISecret  string `json:"cloudinary_api_secret"`
}

func newEnvCheck(c *cloudinary.Client) envCheck {
	var creds cloudinary.Credentials
	if c != nil {
		creds = c.Credentials()
	}
	return envCheck{
		Configured: creds.CloudName && creds.APIKey && creds.APISecret,
		CloudName:  setOrNot(creds.CloudName),
		APIKey:     setOrNot(creds.APIKey),
		APISecret:  setOrNot(creds.APISecret),
	}
}

func setOrNot(ok bool) string {
	if ok {
		return "Set"
	}
	return "Not Set"
}
