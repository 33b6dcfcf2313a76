package service

import (
	"context"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/repository"
)

// CustomerService manages customers. Deleting a customer deletes its
// students.
type CustomerService struct {
	base
}

func (s *CustomerService) Create(ctx context.Context, p domain.Partition, c domain.Customer) (domain.Customer, error) {
	return s.client.Customers.Create(ctx, p, c)
}

func (s *CustomerService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Customer, error) {
	return s.client.Customers.Get(ctx, p, id)
}

func (s *CustomerService) List(ctx context.Context, p domain.Partition) ([]domain.Customer, error) {
	return s.client.Customers.List(ctx, p)
}

// Update replaces the customer and returns the prior value.
func (s *CustomerService) Update(ctx context.Context, p domain.Partition, c domain.Customer) (domain.Customer, error) {
	prior, _, err := s.Replace(ctx, p, c)
	return prior, err
}

// Replace updates the customer and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *CustomerService) Replace(ctx context.Context, p domain.Partition, c domain.Customer) (domain.Customer, domain.Customer, error) {
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Customer, error) { return r.Customers.Update(ctx, p, c) },
		func(r *repository.Repositories) (domain.Customer, error) { return r.Customers.Get(ctx, p, c.ID) })
}

// Students lists the students paid for by customer id.
func (s *CustomerService) Students(ctx context.Context, p domain.Partition, id int64) ([]domain.Student, error) {
	if _, err := s.client.Customers.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.client.Students.ListBy(ctx, p, repository.ColCustomerID, id)
}

// Delete removes the customer, its students (with their attendance and
// attachments) and its own attachments in one transaction.
func (s *CustomerService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Customer, error) {
	var former domain.Customer
	err := s.deleteWith(ctx, p, "Customer", id, func(r *repository.Repositories, c *cascade) error {
		var err error
		if former, err = r.Customers.Get(ctx, p, id); err != nil {
			return err
		}
		if err := c.students(ctx, repository.ColCustomerID, id); err != nil {
			return err
		}
		if err := c.attachments(ctx, domain.OwnerCustomer, id); err != nil {
			return err
		}
		_, err = r.Customers.Delete(ctx, p, id)
		return err
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return former, nil
}
