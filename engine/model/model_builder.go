package model

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithVertices is an option builder that appends vertex positions to the Mesh.
//
// Parameters:
//   - vertices: the model-space positions
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices to a mesh
func WithVertices(vertices ...Vertex) MeshBuilderOption {
	return func(m *mesh) {
		for _, v := range vertices {
			m.vx = append(m.vx, v.X)
			m.vy = append(m.vy, v.Y)
			m.vz = append(m.vz, v.Z)
		}
	}
}

// WithFaces is an option builder that appends faces to the Mesh. Texture arrays are only allocated
// once a textured face is present, so an untextured mesh reports nil FaceTextures.
//
// Parameters:
//   - faces: the triangles
//
// Returns:
//   - MeshBuilderOption: a function that applies the faces to a mesh
func WithFaces(faces ...Face) MeshBuilderOption {
	return func(m *mesh) {
		for _, f := range faces {
			if f.Texture != Untextured && m.textures == nil {
				m.textures = make([]int16, len(m.fa))
				m.us = make([][3]float32, len(m.fa))
				m.vs = make([][3]float32, len(m.fa))
				for i := range m.textures {
					m.textures[i] = Untextured
				}
			}
			m.fa = append(m.fa, f.A)
			m.fb = append(m.fb, f.B)
			m.fc = append(m.fc, f.C)
			m.color1 = append(m.color1, f.Color1)
			m.color2 = append(m.color2, f.Color2)
			m.color3 = append(m.color3, f.Color3)
			m.alphas = append(m.alphas, f.Alpha)
			m.priorities = append(m.priorities, f.Priority)
			if m.textures != nil {
				m.textures = append(m.textures, f.Texture)
				m.us = append(m.us, f.U)
				m.vs = append(m.vs, f.V)
			}
		}
	}
}

// WithSceneID is an option builder that marks the Mesh as resident in a scene upload.
//
// Parameters:
//   - id: the scene id returned by the uploader
//
// Returns:
//   - MeshBuilderOption: a function that applies the scene id to a mesh
func WithSceneID(id int) MeshBuilderOption {
	return func(m *mesh) {
		m.sceneID = id
	}
}

// Box builds the vertices and faces of an axis-aligned box resting on the origin, with every face flat shaded.
//
// Parameters:
//   - halfWidth: half the extent along X and Z
//   - height: the extent above the origin
//   - hsl: the face color
//
// Returns:
//   - MeshBuilderOption: a function that adds the box to a mesh
func Box(halfWidth, height, hsl int32) MeshBuilderOption {
	return func(m *mesh) {
		base := int32(len(m.vx))
		WithVertices(
			Vertex{-halfWidth, 0, -halfWidth}, Vertex{halfWidth, 0, -halfWidth},
			Vertex{halfWidth, 0, halfWidth}, Vertex{-halfWidth, 0, halfWidth},
			Vertex{-halfWidth, -height, -halfWidth}, Vertex{halfWidth, -height, -halfWidth},
			Vertex{halfWidth, -height, halfWidth}, Vertex{-halfWidth, -height, halfWidth},
		)(m)
		quads := [6][4]int32{
			{0, 1, 2, 3}, {4, 7, 6, 5},
			{0, 4, 5, 1}, {1, 5, 6, 2},
			{2, 6, 7, 3}, {3, 7, 4, 0},
		}
		faces := make([]Face, 0, 12)
		for _, q := range quads {
			faces = append(faces,
				Face{A: base + q[0], B: base + q[1], C: base + q[2], Color1: hsl, Color3: FlatFace, Texture: Untextured},
				Face{A: base + q[0], B: base + q[2], C: base + q[3], Color1: hsl, Color3: FlatFace, Texture: Untextured},
			)
		}
		WithFaces(faces...)(m)
	}
}
