// Command tagedit reads and writes ID3v2 tags and runs the tagedit HTTP
// service.
package main

import "github.com/simonhull/tagedit/cmd/tagedit/cmd"

func main() {
	cmd.Execute()
}
