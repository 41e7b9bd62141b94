package models

// Stage represents one step of the deployment pipeline
type Stage string

const (
	StageDeployToken          Stage = "deploy_token"
	StageDeployFaucet         Stage = "deploy_faucet"
	StageFundFaucet           Stage = "fund_faucet"
	StageDeployImplementation Stage = "deploy_implementation"
	StageDeployFactory        Stage = "deploy_factory"
	StageAwaitFinality        Stage = "await_finality"
	StageVerifyToken          Stage = "verify_token"
	StageVerifyFaucet         Stage = "verify_faucet"
	StageVerifyImplementation Stage = "verify_implementation"
	StageVerifyFactory        Stage = "verify_factory"
)

// StageOrder is the fixed execution order. Later stages consume addresses
// produced by earlier ones, so this is not configurable.
var StageOrder = []Stage{
	StageDeployToken,
	StageDeployFaucet,
	StageFundFaucet,
	StageDeployImplementation,
	StageDeployFactory,
	StageAwaitFinality,
	StageVerifyToken,
	StageVerifyFaucet,
	StageVerifyImplementation,
	StageVerifyFactory,
}

func (s Stage) String() string {
	return string(s)
}

// StageIndex returns the position of a stage in StageOrder, or -1
func StageIndex(stage Stage) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// IsDeploy reports whether the stage submits a contract creation
func (s Stage) IsDeploy() bool {
	_, ok := deployStages[s]
	return ok
}

// IsVerify reports whether the stage registers source with the explorer
func (s Stage) IsVerify() bool {
	_, ok := verifyStages[s]
	return ok
}

// Transactional reports whether the stage changes chain state
func (s Stage) Transactional() bool {
	return s.IsDeploy() || s == StageFundFaucet
}

// Artifact returns the artifact a deploy or verify stage operates on
func (s Stage) Artifact() (ArtifactName, bool) {
	if a, ok := deployStages[s]; ok {
		return a, true
	}
	a, ok := verifyStages[s]
	return a, ok
}

var deployStages = map[Stage]ArtifactName{
	StageDeployToken:          ArtifactToken,
	StageDeployFaucet:         ArtifactFaucet,
	StageDeployImplementation: ArtifactImplementation,
	StageDeployFactory:        ArtifactFactory,
}

var verifyStages = map[Stage]ArtifactName{
	StageVerifyToken:          ArtifactToken,
	StageVerifyFaucet:         ArtifactFaucet,
	StageVerifyImplementation: ArtifactImplementation,
	StageVerifyFactory:        ArtifactFactory,
}
