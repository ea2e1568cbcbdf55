// package models defines the data model for the audio cache service.
//
// The package contains two categories of types:
//
// Persistent models implementing the [Model] interface:
//   - [Track] : Descriptive metadata for one video identifier (title, artist,
//     duration, thumbnail, play count). Lifecycle is independent of the cached
//     audio bytes; metadata may exist before the asset is fetched and vice
//     versa.
//
// Value types shared across packages:
//   - [AssetInfo] : One cached asset as seen by capacity accounting.
//   - [StorageStats] : Aggregate cache usage for the stats endpoint.
//
// Identifier validation ([ValidVideoID]) also lives here since both the HTTP
// boundary and the pipeline enforce the same 11-character contract.
package models
