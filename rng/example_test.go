package rng_test

import (
	"fmt"

	"github.com/lox/threadlink/rng"
)

func ExampleSession_SourceFrom() {
	session := rng.NewSession(42)
	s := session.SourceFrom(rng.Combat)

	fmt.Println(s.Range(0, 100), s.Range(0, 100), s.Range(0, 100))
	// Output: 80 62 12
}

func ExampleRoot_UInt() {
	root := rng.NewRoot(7)
	k := rng.NewKey(1, 2, 3, 4)

	fmt.Printf("%#x %#x\n", root.UInt(k), root.UInt(k))
	// Output: 0xe1190779 0xe1190779
}
