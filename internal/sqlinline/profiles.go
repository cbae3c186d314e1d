package sqlinline

const QUpsertProfileByEmail = `--sql b86455d7-7880-426d-9807-994b209d0198
insert into profiles (id, email, name, plan, role, credits, renewed_at, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, 'free', 'user', $3::int, now(), now(), now())
on conflict (email) do update set
    name = excluded.name,
    updated_at = now()
returning id, email, name, plan, role, credits, renewed_at, created_at, updated_at;
`

const QSelectProfileByID = `--sql 1f4b72df-962d-4449-8f82-4d038022abf0
select id, email, name, plan, role, credits, renewed_at, created_at, updated_at
from profiles
where id = $1::uuid
limit 1;
`

const QSetProfileCredits = `--sql b0afad03-f32a-42ca-af2a-8057e770403f
update profiles
set credits = greatest($2::int, 0),
    updated_at = now()
where id = $1::uuid
returning id, email, name, plan, role, credits, renewed_at, created_at, updated_at;
`

const QRenewProfileCredits = `--sql fa23b2a1-a079-4ffc-87e2-d53a0258036a
update profiles
set credits = $2::int,
    renewed_at = $3::timestamptz,
    updated_at = now()
where id = $1::uuid
returning id, email, name, plan, role, credits, renewed_at, created_at, updated_at;
`

const QUpdateProfilePlan = `--sql e16a8044-9d84-46a2-90dd-f7d52b259f09
update profiles
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id, email, name, plan, role, credits, renewed_at, created_at, updated_at;
`
