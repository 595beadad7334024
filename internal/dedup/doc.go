// Package dedup classifies response bodies as new, exact duplicates or near
// duplicates of bodies seen earlier in the same scan.
//
// Classification has two stages:
//   - Exact: the xxHash64 digest of the raw bytes is looked up in the set of
//     digests seen so far.
//   - Near: the body is decoded as UTF-8 (invalid sequences dropped) and
//     compared character by character against every retained sample using the
//     longest-matching-blocks ratio. A ratio above the threshold is a duplicate.
//
// Only bodies that pass both stages are retained as samples, so the first
// occurrence of any body is never a duplicate.
//
// # Known limitation
//
// Comparing two texts costs time proportional to the product of their lengths,
// and every new body is compared with every retained sample. The total cost is
// therefore quadratic in the number of unique bodies of a scan. The sample list
// grows without bound unless WithMaxSamples is used; capping it evicts the
// oldest samples and lowers dedup recall, since a body similar only to an
// evicted sample is reported as new.
package dedup
