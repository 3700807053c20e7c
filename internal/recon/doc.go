// Package recon holds the file-chunk preparation pipeline: request
// validation, row parsing with an ordered delimiter set, per comparison pair
// column resolution and chunk assembly. Everything here is pure; I/O lives
// behind TaskMetadataLookup and QueuePublisher.
package recon
