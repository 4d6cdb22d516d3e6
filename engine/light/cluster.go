package light

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Cluster grid dimensions: screen tiles in X and Y, exponential depth slices in Z.
// They must match CLUSTER_X, CLUSTER_Y and CLUSTER_Z in the shared shader include.
const (
	ClusterCountX = 16
	ClusterCountY = 9
	ClusterCountZ = 24
)

// MaxLightsPerCluster is the number of light indices a cluster stores. If more
// lights overlap a cluster, the excess is dropped.
const MaxLightsPerCluster = 255

// ClusterWorkgroupSize is the edge length of the clustering shader's cubic workgroup.
const ClusterWorkgroupSize = 4

// ClusterStride is the byte size of one WGSL Cluster: a u32 count followed by
// MaxLightsPerCluster u32 indices.
const ClusterStride = 4 + MaxLightsPerCluster*4

// ClusterBufferSize is the byte size of the cluster set buffer.
const ClusterBufferSize = ClusterCountX * ClusterCountY * ClusterCountZ * ClusterStride

// ClusterCounts returns the cluster grid dimensions.
//
// Returns:
//   - x, y, z: clusters per axis
func ClusterCounts() (x, y, z uint32) {
	return ClusterCountX, ClusterCountY, ClusterCountZ
}

// WorkgroupCounts returns the dispatch size covering every cluster once.
//
// Returns:
//   - x, y, z: workgroups per axis
func WorkgroupCounts() (x, y, z uint32) {
	cx, cy, cz := ClusterCounts()
	return common.CeilDiv(cx, ClusterWorkgroupSize),
		common.CeilDiv(cy, ClusterWorkgroupSize),
		common.CeilDiv(cz, ClusterWorkgroupSize)
}
