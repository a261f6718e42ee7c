package domain

const (
	AppTitle = "Real Insta"

	// MaxCaptionLength bounds post captions.
	MaxCaptionLength = 2200

	// PostsBucket is the object storage bucket holding post images.
	PostsBucket = "posts"
)
