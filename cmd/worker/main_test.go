package main

import (
	"testing"

	_ "github.com/wayne-insights/dashboard/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	main()
}
