package dbcli

import (
	"fmt"
	"io"

	"btreestore/database"
)

type scenario struct {
	name      string
	branching uint16
	inserts   []uint32
	deletes   []uint32
}

var scenarios = []scenario{
	{name: "basic", branching: 3, inserts: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	{name: "dividing", branching: 4, inserts: []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21}},
	{name: "promotion", branching: 3, inserts: []uint32{5, 55, 91, 115, 46, 13, 8, 53, 72}},
	{name: "large", branching: 4, inserts: []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21, 22, 25, 26, 27}},
	{
		name:      "deletion",
		branching: 4,
		inserts:   []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21},
		deletes:   []uint32{3, 5, 2, 20, 21, 17, 11, 7, 13, 19},
	},
}

// Demo replays the reference sequences, printing the tree after the inserts
// and after every delete.
func Demo(w io.Writer) error {
	key := [4]uint32{1, 2, 3, 4}

	for _, sc := range scenarios {
		store, err := database.NewStore(sc.branching, 1)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "== %s (branching %d) ==\n", sc.name, sc.branching)
		for _, k := range sc.inserts {
			if err := store.Insert(k, []byte(fmt.Sprintf("value %d", k)), key, uint64(k)); err != nil {
				store.Close()
				return err
			}
		}
		if err := store.Display(w); err != nil {
			store.Close()
			return err
		}

		for _, k := range sc.deletes {
			if err := store.Delete(k); err != nil {
				store.Close()
				return err
			}
			fmt.Fprintf(w, "-- delete %d\n", k)
			if err := store.Display(w); err != nil {
				store.Close()
				return err
			}
		}
		store.Close()
	}
	return nil
}
