package main

import (
	"go.minekube.com/worldtap/pkg/cmd/worldtap"
)

func main() {
	worldtap.Execute()
}
