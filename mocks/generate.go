package mocks

//go:generate mockgen -destination=./mock_catalog.go -package=mocks github.com/rxtech-lab/argo-codegen/internal/indicator Catalog
//go:generate mockgen -destination=./mock_artifact_store.go -package=mocks github.com/rxtech-lab/argo-codegen/internal/store ArtifactStore
