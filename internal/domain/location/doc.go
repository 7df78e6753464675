// Package location converts between a structured panel location and the
// proxy URLs the embedded frame is pointed at.
//
// URL scheme:
//
//	<base>proxy/<port>/<path>            relative mode
//	<base>proxy/absolute/<port>/<path>   absolute mode
//	<base>jupyterlab-local-browser/public/index.html   nothing selected
//
// Decode never fails. Anything that is not a proxy URL, including pages the
// frame wandered off to, decodes to the unselected location.
//
// Example Usage:
//
//	codec := location.NewCodec("http://localhost:8888/")
//	url := codec.Encode(location.Location{Mode: location.Relative, Port: "8080", Path: "app"})
//	loc := codec.Decode("http://localhost:8888/proxy/8080/app?x=1")
package location
