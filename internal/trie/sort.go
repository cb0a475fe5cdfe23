package trie

// insertionSortThreshold is the run length below which sortRange switches
// to insertion sort.
const insertionSortThreshold = 10

// labelAt returns the label of k at depth, or -1 past its end.
func labelAt(k *key, depth int) int {
	if depth < k.length() {
		return int(k.at(depth))
	}
	return -1
}

func median3(a, b, c *key, depth int) int {
	x, y, z := labelAt(a, depth), labelAt(b, depth), labelAt(c, depth)
	if x < y {
		if y < z {
			return y
		} else if x < z {
			return z
		}
		return x
	} else if x < z {
		return x
	} else if y < z {
		return z
	}
	return y
}

// compareFrom compares two keys that are known to agree on their first
// depth labels. A proper prefix sorts first.
func compareFrom(lhs, rhs *key, depth int) int {
	for i := depth; i < lhs.length(); i++ {
		if i == rhs.length() {
			return 1
		}
		if l, r := lhs.at(i), rhs.at(i); l != r {
			return int(l) - int(r)
		}
	}
	switch {
	case lhs.length() == rhs.length():
		return 0
	case lhs.length() < rhs.length():
		return -1
	}
	return 1
}

func insertionSort(s []key, depth int) int {
	count := 1
	for i := 1; i < len(s); i++ {
		result := 0
		for j := i; j > 0; j-- {
			result = compareFrom(&s[j-1], &s[j], depth)
			if result <= 0 {
				break
			}
			s[j-1], s[j] = s[j], s[j-1]
		}
		if result != 0 {
			count++
		}
	}
	return count
}

// sortKeys sorts keys in reading order with a three-way radix quicksort and
// returns the number of distinct keys.
func sortKeys(keys []key) int {
	return sortRange(keys, 0, len(keys), 0)
}

func sortRange(s []key, l, r, depth int) int {
	count := 0
	for r-l > insertionSortThreshold {
		pl, pr := l, r
		pivotL, pivotR := l, r

		pivot := median3(&s[l], &s[l+(r-l)/2], &s[r-1], depth)
		for {
			for pl < pr {
				label := labelAt(&s[pl], depth)
				if label > pivot {
					break
				} else if label == pivot {
					s[pl], s[pivotL] = s[pivotL], s[pl]
					pivotL++
				}
				pl++
			}
			for pl < pr {
				pr--
				label := labelAt(&s[pr], depth)
				if label < pivot {
					break
				} else if label == pivot {
					pivotR--
					s[pr], s[pivotR] = s[pivotR], s[pr]
				}
			}
			if pl >= pr {
				break
			}
			s[pl], s[pr] = s[pr], s[pl]
			pl++
		}
		// Move the pivot-equal runs from both ends into the middle.
		for pivotL > l {
			pivotL--
			pl--
			s[pivotL], s[pl] = s[pl], s[pivotL]
		}
		for pivotR < r {
			s[pivotR], s[pr] = s[pr], s[pivotR]
			pivotR++
			pr++
		}

		if pl-l > pr-pl || r-pr > pr-pl {
			if pr-pl == 1 {
				count++
			} else if pr-pl > 1 {
				if pivot == -1 {
					count++
				} else {
					count += sortRange(s, pl, pr, depth+1)
				}
			}

			if pl-l < r-pr {
				if pl-l == 1 {
					count++
				} else if pl-l > 1 {
					count += sortRange(s, l, pl, depth)
				}
				l = pr
			} else {
				if r-pr == 1 {
					count++
				} else if r-pr > 1 {
					count += sortRange(s, pr, r, depth)
				}
				r = pl
			}
		} else {
			if pl-l == 1 {
				count++
			} else if pl-l > 1 {
				count += sortRange(s, l, pl, depth)
			}

			if r-pr == 1 {
				count++
			} else if r-pr > 1 {
				count += sortRange(s, pr, r, depth)
			}

			l, r = pl, pr
			if pr-pl == 1 {
				count++
			} else if pr-pl > 1 {
				if pivot == -1 {
					l = r
					count++
				} else {
					depth++
				}
			}
		}
	}

	if r-l > 1 {
		count += insertionSort(s[l:r], depth)
	}
	return count
}
