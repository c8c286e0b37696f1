// Command fat12 inspects FAT12 disk images and copies files out of them.
package main

import (
	"log"
	"os"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}
