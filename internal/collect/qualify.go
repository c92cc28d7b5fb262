package collect

import (
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/validate"
)

// Outcome classifies a qualification decision.
type Outcome int

const (
	// Rejected means the record lacks the required contacts.
	Rejected Outcome = iota
	// Duplicate means the record qualified but its identity key was already
	// accepted this run.
	Duplicate
	// Accepted means the record qualified and is unique.
	Accepted
)

// Qualifier applies the contact-validity rule and the name+website identity
// rule. It owns the accepted-key set for one run.
type Qualifier struct {
	validator *validate.Validator
	country   string
	mode      model.QualificationMode
	accepted  map[string]struct{}
	log       *zap.Logger
}

// NewQualifier creates a Qualifier for one run.
func NewQualifier(validator *validate.Validator, country string, mode model.QualificationMode, log *zap.Logger) *Qualifier {
	return &Qualifier{
		validator: validator,
		country:   country,
		mode:      mode,
		accepted:  make(map[string]struct{}),
		log:       log.With(zap.String("component", "qualify")),
	}
}

// Qualify decides acceptance and uniqueness for one raw record. A record
// with an empty identity key (no name and no website) is always accepted;
// dedup cannot apply to it.
func (q *Qualifier) Qualify(raw model.RawBusiness) (model.Prospect, Outcome) {
	hasPhone := validate.IsQualifyingPhone(raw.Phone, q.country)
	hasEmail := q.validator.IsBusinessEmail(raw.Email)

	qualified := hasPhone && hasEmail
	if q.mode == model.RequireEither {
		qualified = hasPhone || hasEmail
	}
	if !qualified {
		return model.Prospect{}, Rejected
	}

	key := model.MakeIdentityKey(raw.BusinessName, raw.Website)
	if key != "" {
		if _, dup := q.accepted[key]; dup {
			q.log.Info("duplicate prospect dropped",
				zap.String("business", raw.BusinessName),
				zap.String("identity_key", key),
			)
			return model.Prospect{}, Duplicate
		}
		q.accepted[key] = struct{}{}
	}

	return model.Prospect{RawBusiness: raw, IdentityKey: key}, Accepted
}
