// Package dict defines the types shared by the pronunciation crawler and the
// interfaces its fetch, download and persistence layers implement.
package dict
