package request

type SubmitCrawlRequest struct {
	URL string `json:"url"`
	// Fresh discards the stored frontier and visited set before starting.
	Fresh bool `json:"fresh"`
}
