package simulate

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/coordwatch/internal/domain/model"
)

// Campaign shape. Every campaign account is new, follows far more accounts
// than follow it, has no bio and posts often enough to cross the extreme
// rate line, so each one is scored suspicious.
const (
	campaignMessages     = 3
	campaignPostsPerUser = 60
	campaignFollowers    = 10
	campaignFollowing    = 500
	campaignStagger      = 2 * time.Minute
	campaignWaveGap      = 6 * time.Hour

	organicMinPosts = 2
	organicMaxPosts = 6
	organicSpan     = 7 * 24 * time.Hour
	organicMinAge   = 200
	organicMaxAge   = 3000

	sentenceMinWords = 6
	sentenceMaxWords = 11
)

var vocabulary = strings.Fields(`
	morning coffee garden river bicycle library concert weather recipe soup
	bread market neighbor festival painting guitar museum train station harbor
	mountain trail forest lake picnic sunset football match referee stadium
	school teacher homework exam project deadline office meeting lunch dinner
	movie series episode novel chapter author poem podcast radio interview
	puppy kitten walk park bench rain snow storm wind summer winter autumn
	spring flowers tomatoes basil pepper oven kitchen bakery cheese apples
	holiday flight airport hotel beach island village castle bridge tower
	camera photo album memory family cousin grandmother birthday wedding party
	repair bike chain engine garage tools paint fence roof window door
	running yoga swim gym stretch marathon practice lesson piano violin
	election council budget library volunteer charity donation shelter clinic
	quiet busy lovely strange funny tired happy proud nervous curious
`)

var campaignTemplates = []string{
	"BREAKING: they do not want you to know the truth about %s. Share before it is deleted!",
	"Everyone is talking about %s today. Retweet if you agree, the media will not cover it",
	"Huge news about %s just dropped. Spread the word now, do not let them silence us",
	"The real story behind %s is finally out. Share now and wake people up",
}

var organicBios = []string{
	"gardener and cyclist", "teacher, reader, tea drinker", "amateur photographer",
	"dad of two, football fan", "nurse on night shifts", "baking sourdough since 2019",
	"hiking every weekend", "retired engineer", "music student", "local news junkie",
}

// Generator builds synthetic batches. The same seed yields the same batches.
type Generator struct {
	rng  *rand.Rand
	base time.Time
}

// NewGenerator creates a generator anchored at base.
func NewGenerator(seed int64, base time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), base: base.UTC()} //nolint:gosec // deterministic simulation data
}

// Batch generates the n-th batch. Even batches carry a campaign.
func (g *Generator) Batch(n, campaignSize, organicSize int) (model.Batch, Kind) {
	kind := KindOrganic
	if n%2 == 0 && campaignSize > 0 {
		kind = KindCampaign
	}

	batch := model.Batch{BatchID: fmt.Sprintf("sim-%d-%s", n, g.id())}
	for i := 0; i < organicSize; i++ {
		batch.Users = append(batch.Users, g.organicUser())
	}
	if kind == KindCampaign {
		batch.Users = append(batch.Users, g.campaign(campaignSize)...)
	}
	g.rng.Shuffle(len(batch.Users), func(i, j int) {
		batch.Users[i], batch.Users[j] = batch.Users[j], batch.Users[i]
	})
	return batch, kind
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) organicUser() model.UserInput {
	followers := 20 + g.rng.Intn(800)
	u := model.UserInput{
		UserID: "user-" + g.id(),
		Profile: model.ProfileInput{
			Username:       "organic_" + g.word(),
			FollowerCount:  followers,
			FollowingCount: followers/2 + g.rng.Intn(followers+1),
			AccountAgeDays: organicMinAge + g.rng.Intn(organicMaxAge-organicMinAge),
			Bio:            organicBios[g.rng.Intn(len(organicBios))],
		},
	}
	posts := organicMinPosts + g.rng.Intn(organicMaxPosts-organicMinPosts+1)
	for p := 0; p < posts; p++ {
		at := g.base.Add(time.Duration(g.rng.Int63n(int64(organicSpan))))
		u.Posts = append(u.Posts, model.PostInput{
			Content:   g.sentence(),
			Timestamp: at.Format(time.RFC3339),
			Likes:     g.rng.Intn(40),
			Shares:    g.rng.Intn(5),
		})
	}
	return u
}

// campaign builds size accounts that post the same messages in waves,
// each account a couple of minutes after the previous one.
func (g *Generator) campaign(size int) []model.UserInput {
	topic := g.word()
	tag := "#" + topic
	messages := make([]string, campaignMessages)
	for m := range messages {
		messages[m] = fmt.Sprintf(campaignTemplates[(m+g.rng.Intn(len(campaignTemplates)))%len(campaignTemplates)], topic) + " " + tag
	}

	users := make([]model.UserInput, size)
	for i := range users {
		u := model.UserInput{
			UserID: "amp-" + g.id(),
			Profile: model.ProfileInput{
				Username:       fmt.Sprintf("patriot_%s_%d", topic, g.rng.Intn(100000)),
				FollowerCount:  campaignFollowers,
				FollowingCount: campaignFollowing,
				AccountAgeDays: 1,
			},
		}
		for m, msg := range messages {
			at := g.base.Add(time.Duration(m)*campaignWaveGap + time.Duration(i)*campaignStagger)
			u.Posts = append(u.Posts, model.PostInput{
				Content:   msg,
				Timestamp: at.Format(time.RFC3339),
				Hashtags:  []string{tag},
				Shares:    g.rng.Intn(3),
			})
		}
		// Filler keeps the posting rate high without adding shared text.
		for p := campaignMessages; p < campaignPostsPerUser; p++ {
			at := g.base.Add(time.Duration(g.rng.Int63n(int64(organicSpan))))
			u.Posts = append(u.Posts, model.PostInput{Content: g.sentence(), Timestamp: at.Format(time.RFC3339)})
		}
		for _, peer := range users[:i] {
			u.Interactions = append(u.Interactions, model.Interaction{TargetUserID: peer.UserID, Kind: "share"})
		}
		users[i] = u
	}
	return users
}

func (g *Generator) word() string {
	return vocabulary[g.rng.Intn(len(vocabulary))]
}

func (g *Generator) sentence() string {
	n := sentenceMinWords + g.rng.Intn(sentenceMaxWords-sentenceMinWords+1)
	words := make([]string, n)
	for i := range words {
		words[i] = g.word()
	}
	return strings.Join(words, " ")
}
