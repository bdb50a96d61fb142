package kvstore

// Key is a logical state key.
type Key string

const (
	KeyUser           Key = "user"
	KeySubscription   Key = "sub"
	KeyCVData         Key = "cvData"
	KeyJobDescription Key = "jobDescription"
	KeyQuestionBank   Key = "questionBank"
	KeyProfile        Key = "profile"
	KeyHistory        Key = "history"
	KeyOnboarded      Key = "onboarded"
	KeyWeakAreas      Key = "weakAreas"
	KeyInterviewDate  Key = "interviewDate"
	KeyTargetCompany  Key = "targetCompany"
	KeyDarkMode       Key = "darkMode"
)

// keyPrefix namespaces every stored key.
const keyPrefix = "rh_"

// String returns the stored form of the key.
func (k Key) String() string {
	return keyPrefix + string(k)
}

// AllKeys lists every logical key.
func AllKeys() []Key {
	return []Key{
		KeyUser, KeySubscription, KeyCVData, KeyJobDescription, KeyQuestionBank, KeyProfile,
		KeyHistory, KeyOnboarded, KeyWeakAreas, KeyInterviewDate, KeyTargetCompany, KeyDarkMode,
	}
}

// SessionKeys are cleared on logout. Display preferences survive.
func SessionKeys() []Key {
	return []Key{
		KeyUser, KeySubscription, KeyProfile, KeyHistory, KeyOnboarded, KeyWeakAreas,
		KeyInterviewDate, KeyTargetCompany, KeyCVData, KeyJobDescription, KeyQuestionBank,
	}
}
