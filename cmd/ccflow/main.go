// Command ccflow obtains OAuth2 client-credentials tokens and performs
// authenticated requests with them.
package main

import "os"

// version can be set during build with -ldflags
var version = "dev"

func main() {
	os.Exit(execute(version))
}
