package download

// PageInfo is what a player page URL says about the video it hosts.
// For /player/e/80727/24-some-name/288715.html: EntityID "80727",
// VideoID "24", EntityName "some-name".
type PageInfo struct {
	EntityID   string
	VideoID    string
	EntityName string
}
