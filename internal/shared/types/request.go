package types

// WSMessage is the envelope for every panel WebSocket frame, in both directions
type WSMessage struct {
	Type string `json:"type"`

	// load
	Href  string `json:"href,omitempty"`
	Title string `json:"title,omitempty"`

	// toolbar, selection
	Mode string `json:"mode,omitempty"`
	Port string `json:"port,omitempty"`
	Path string `json:"path,omitempty"`

	// hello
	ID string `json:"id,omitempty"`

	// navigate
	URL string `json:"url,omitempty"`

	// ports
	Ports []PortEntry `json:"ports,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}
