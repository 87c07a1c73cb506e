package service

import (
	"context"

	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// authorResolver joins user summaries onto photos, comments, replies and
// notifications. Users the directory cannot resolve stay nil, and a failing
// directory is logged without failing the response.
type authorResolver struct {
	users repository.UserRepository
	log   *logger.Logger
}

func newAuthorResolver(users repository.UserRepository, log *logger.Logger) *authorResolver {
	return &authorResolver{users: users, log: log}
}

func (a *authorResolver) lookup(ctx context.Context, ids map[int64]struct{}) map[int64]model.UserSummary {
	if len(ids) == 0 || a.users == nil {
		return nil
	}
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	summaries, err := a.users.GetSummaries(ctx, list)
	if err != nil {
		a.log.Warn("User directory lookup failed, authors left unresolved", "users", len(list), "error", err)
		return nil
	}
	return summaries
}

func summaryPtr(summaries map[int64]model.UserSummary, id int64) *model.UserSummary {
	u, ok := summaries[id]
	if !ok {
		return nil
	}
	return &u
}

func (a *authorResolver) photos(ctx context.Context, photos []model.Photo) {
	ids := make(map[int64]struct{})
	for _, p := range photos {
		ids[p.OwnerID] = struct{}{}
		for _, c := range p.Comments {
			ids[c.AuthorID] = struct{}{}
			for _, r := range c.Replies {
				ids[r.AuthorID] = struct{}{}
			}
		}
	}
	summaries := a.lookup(ctx, ids)

	for i := range photos {
		p := &photos[i]
		p.Owner = summaryPtr(summaries, p.OwnerID)
		for j := range p.Comments {
			c := &p.Comments[j]
			c.Author = summaryPtr(summaries, c.AuthorID)
			for k := range c.Replies {
				c.Replies[k].Author = summaryPtr(summaries, c.Replies[k].AuthorID)
			}
		}
	}
}

func (a *authorResolver) photo(ctx context.Context, p *model.Photo) {
	photos := []model.Photo{*p}
	a.photos(ctx, photos)
	*p = photos[0]
}

func (a *authorResolver) comment(ctx context.Context, c *model.Comment) {
	ids := map[int64]struct{}{c.AuthorID: {}}
	for _, r := range c.Replies {
		ids[r.AuthorID] = struct{}{}
	}
	summaries := a.lookup(ctx, ids)

	c.Author = summaryPtr(summaries, c.AuthorID)
	for k := range c.Replies {
		c.Replies[k].Author = summaryPtr(summaries, c.Replies[k].AuthorID)
	}
}

func (a *authorResolver) reply(ctx context.Context, r *model.Reply) {
	summaries := a.lookup(ctx, map[int64]struct{}{r.AuthorID: {}})
	r.Author = summaryPtr(summaries, r.AuthorID)
}

func (a *authorResolver) notifications(ctx context.Context, notifications []model.Notification) {
	ids := make(map[int64]struct{})
	for _, n := range notifications {
		ids[n.ActorID] = struct{}{}
	}
	summaries := a.lookup(ctx, ids)

	for i := range notifications {
		notifications[i].Actor = summaryPtr(summaries, notifications[i].ActorID)
	}
}
