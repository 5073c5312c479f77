// malcrawl crawls the MyAnimeList anime and people catalogs into structured
// JSON records with resumable, checkpointed progress.
package main

import "github.com/otakulab/malcrawl/cmd"

func main() {
	cmd.Execute()
}
