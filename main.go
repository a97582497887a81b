// The main package for the jobradar executable.
package main

import "github.com/JakeFAU/realtime-job-crawler/cmd"

func main() {
	cmd.Execute()
}
