package marisa_test

import (
	"fmt"
	"slices"

	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func Example() {
	var tr marisa.Trie
	keys := []string{"a", "app", "apple", "application", "banana"}
	if err := tr.Build(slices.Values(keys), marisa.Config{NodeOrder: marisa.LabelOrder}); err != nil {
		panic(err)
	}

	id, ok, _ := tr.Lookup("apple")
	key, _, _ := tr.ReverseLookup(id)
	fmt.Println(ok, key)

	prefixes, _ := tr.CommonPrefixSearch("applesauce", -1)
	for _, k := range prefixes {
		fmt.Println("prefix:", k.Key)
	}

	var err error
	for _, k := range tr.PredictiveSearchSeq("app")(&err) {
		fmt.Println("completion:", k)
	}
	// Output:
	// true apple
	// prefix: a
	// prefix: app
	// prefix: apple
	// completion: app
	// completion: apple
	// completion: application
}
