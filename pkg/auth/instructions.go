package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide prints how to obtain a Tumblr API key and where it is stored
func ShowAPIKeyGuide(w io.Writer, path string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "TUMBLR API KEY")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "tumbledee reads public blog listings with an OAuth consumer key.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Log in to Tumblr and open https://www.tumblr.com/oauth/apps")
	fmt.Fprintln(w, "  2. Register an application (any name and callback URL will do)")
	fmt.Fprintln(w, "  3. Copy the \"OAuth Consumer Key\" shown for the application")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The key will be saved to %s as {\"api_key\": \"...\"}.\n", path)
	fmt.Fprintln(w, "Paths ending in .toml are written as api_key = \"...\" instead.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
